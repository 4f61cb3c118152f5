package netsvc

// ReadAvailable performs a chunked receive: 4096-byte reads,
// continuing only while the last read filled the chunk. The read is
// blocking by design — a client that never writes stalls this
// listener's tick until it does.
func ReadAvailable(c *ClientConn) (string, error) {
	const chunk = 4096
	buf := make([]byte, 0, chunk)
	tmp := make([]byte, chunk)

	for {
		n, err := c.Conn.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
		}
		if err != nil {
			return "", err
		}
		if n < chunk {
			break
		}
	}
	return string(buf), nil
}
