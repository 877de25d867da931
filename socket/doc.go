// Package socket is a synchronous IPv4 TCP client connection built
// directly on the socket system calls.
//
// A Socket moves through three states:
//
//	Unconnected --Connect ok--> Connected --Close--> Closed
//	Unconnected --Close-------> Closed
//
// A failed connect leaves the Socket Unconnected, so the same Socket
// may try again.  Closed is terminal.
//
// Connect blocks until the kernel finishes the handshake.
// ConnectTimeout puts the descriptor in non-blocking mode, starts the
// handshake, waits for readiness up to the timeout, and then reads
// SO_ERROR to learn the outcome.  A zero timeout checks once and does
// not wait.
//
// Read and Write are single calls and may move fewer bytes than
// asked.  Send and Receive loop until the whole buffer has moved or
// an error ends the transfer, in which case they report zero bytes.
//
// Every failure is a *SocketError whose Kind says what went wrong:
//
//	KindSocket       descriptor could not be created
//	KindResolve      host name did not yield an IPv4 address
//	KindConnect      connect or a connect-time syscall failed
//	KindTimeout      bounded connect or deadline expired
//	KindSockError    handshake finished with a pending socket error
//	KindNotConnected I/O before a successful connect
//	KindClosed       any call after Close
//	KindPeerClosed   peer ended the stream during Receive
//	KindIO           other read/write failure
//
// ReadString treats a short read as the end of a message.  A message
// that ends exactly on a ReadChunkSize boundary cannot be told apart
// from one with more to come; ReadString then blocks on one extra read.
// Protocols that need exact framing should send a length and use
// ReadValue and Receive instead.
package socket
