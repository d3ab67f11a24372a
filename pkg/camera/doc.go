// Package camera runs a streaming session against one P2P camera.
//
// A Session owns the UDP socket and every piece of protocol state. The
// first RetrieveImage call binds the socket and runs the handshake; every
// call then reads fragments until the reassembler yields a complete JPEG,
// sending a keepalive on every fifth fragment.
//
// Recoverable faults never reach the caller. Handshake faults are retried
// after their delay and a socket fault while streaming tears the socket down
// and starts over with a fresh handshake. Only a camera that never answers
// and cancellation of the caller's context are returned as errors.
//
// Basic usage:
//
//	s, err := camera.NewSession(camera.Config{
//		HostAddress:   "0.0.0.0",
//		TargetAddress: "192.168.1.20",
//	})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	jpeg, err := s.RetrieveImage(ctx)
package camera
