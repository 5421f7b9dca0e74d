// Package wire implements the readingdb request/response protocol.
//
// Every message travels in a frame: an 8-byte header holding the message
// type and the body length (both big-endian uint32), followed by the body.
// Bodies use the protobuf wire format, encoded and decoded directly with
// protowire so no generated code is needed.
//
// Example usage:
//
//	body := wire.EncodeQuery(&wire.Query{StreamID: 7, StartTime: 0, EndTime: 100, Action: wire.QueryData})
//	if err := wire.WriteFrame(w, wire.MessageQuery, body); err != nil {
//		return err
//	}
//	msgType, body, err := wire.ReadFrame(r)
//	resp, err := wire.DecodeResponse(body)
package wire
