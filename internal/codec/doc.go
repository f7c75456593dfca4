// Package codec serializes domain objects as MessagePack.
//
// An encoded object records its kind, its domain (a Rect as a bounding box,
// an Intervals domain as left,right pairs per line), its values tables and
// its properties. Decoding checks every interval invariant and rejects
// corrupt input with ErrDomainDataInvalid instead of repairing it.
//
// Objects can be written back to back on one stream. Reader.Read reports the
// clean end of such a stream with ErrEndOfStream:
//
//	rd := codec.NewReader(f)
//	for {
//		obj, err := rd.Read()
//		if errors.Is(err, domain.ErrEndOfStream) {
//			break
//		}
//		if err != nil {
//			return err
//		}
//		process(obj)
//		object.Free(obj)
//	}
package codec
