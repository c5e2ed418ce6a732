package realtime

import "sync"

// ClientStream is the subset of the client websocket the orchestrator needs.
// *websocket.Conn from gofiber/websocket satisfies it.
type ClientStream interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

// clientConn serializes writes to the client socket. The upstream reader, the
// client reader and tool tasks all emit frames, and a websocket connection
// only tolerates one concurrent writer.
type clientConn struct {
	stream  ClientStream
	writeMu sync.Mutex
}

func newClientConn(stream ClientStream) *clientConn {
	return &clientConn{stream: stream}
}

func (c *clientConn) SendJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.stream.WriteJSON(v)
}

func (c *clientConn) ReadMessage() (int, []byte, error) {
	return c.stream.ReadMessage()
}

func (c *clientConn) Close() error {
	return c.stream.Close()
}
