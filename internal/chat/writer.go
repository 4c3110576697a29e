package chat

import "bufio"

// StartOutboundWriter drains the session's outbound channel onto its
// connection. On a write fault it closes the session, which fails the read
// loop and triggers the normal teardown; other sessions are unaffected.
func StartOutboundWriter(s *Session) {
	go func() {
		w := bufio.NewWriter(s.Conn)
		for {
			select {
			case line := <-s.Out:
				if _, err := w.WriteString(line + "\n"); err != nil {
					s.Close()
					return
				}
				if err := w.Flush(); err != nil {
					s.Close()
					return
				}
			case <-s.done:
				return
			}
		}
	}()
}

// sendLine enqueues a line for one session without blocking. Lines to a
// session whose buffer is full are dropped.
func sendLine(s *Session, line string) {
	select {
	case s.Out <- line:
	default:
	}
}
