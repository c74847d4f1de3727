package command

// RunTask is the one function the scheduler invokes each tick (the
// protocol's "command_task" background task). It completes at most one
// inbound frame per call, dispatching every command tuple the frame
// contains before returning, and returns immediately if nothing is ready.
func (c *Context) RunTask() {
	frame := c.nextFrame()
	if frame == nil {
		return
	}

	length := int(frame[posLen])
	payload := frame[headerSize : length-trailerSize]

	p := payload
	for len(p) > 0 {
		cmdID := p[0]
		p = p[1:]

		desc := c.index.Lookup(cmdID)
		if desc == nil {
			// The original's shutdown() is noreturn: an unknown command
			// id aborts before the frame is ever popped. We mirror that
			// here rather than popping first, since nothing dispatches
			// again after a fatal shutdown anyway.
			c.fatal(ReasonInvalidCommand)
			return
		}

		rest, args, outcome := c.parseArgs(p, desc)
		if outcome == parseSkipFrame {
			break
		}
		p = rest

		desc.Func(args)
		if c.onCommand != nil {
			c.onCommand(cmdID, args)
		}
	}

	c.in.Pop(length)
}
