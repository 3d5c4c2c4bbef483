package record

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// minChunkLimit is the smallest per-chunk payload limit a ContinuableOutput
// accepts: enough for the largest primitive plus a string flag byte.
const minChunkLimit = 9

// ContinuableOutput encodes one logical record and splits it into a first
// physical record under the record's own tag followed by as many CONTINUE
// records as needed.  Each physical payload holds at most the configured
// limit.
//
// Primitive writes are never split: if a value does not fit in the current
// chunk a new CONTINUE chunk is started first.  Raw byte writes are split
// anywhere.  String writes re-emit the encoding flag byte at the start of
// every CONTINUE chunk the character data spills into.
type ContinuableOutput struct {
	w      *Writer
	tag    uint16
	limit  int
	hdrPos int // offset of the current chunk's header in w
	chunks int
}

// NewContinuableOutput returns an output for record tag using the format
// limit of [MaxRecordDataSize] bytes per chunk.
func NewContinuableOutput(tag uint16) *ContinuableOutput {
	return NewContinuableOutputLimit(tag, MaxRecordDataSize)
}

// NewContinuableOutputLimit returns an output for record tag whose chunks
// carry at most limit payload bytes.  Record families that need a tighter
// threshold than the format maximum pass it here; limit is clamped to
// [9, MaxRecordDataSize].
func NewContinuableOutputLimit(tag uint16, limit int) *ContinuableOutput {
	limit = max(minChunkLimit, min(limit, MaxRecordDataSize))
	c := &ContinuableOutput{w: NewWriter(HeaderSize + 64), tag: tag, limit: limit}
	c.startChunk(tag)
	return c
}

func (c *ContinuableOutput) startChunk(tag uint16) {
	c.hdrPos = c.w.Len()
	c.w.WriteUint16(tag)
	c.w.WriteUint16(0) // patched by finishChunk
	c.chunks++
}

func (c *ContinuableOutput) chunkLen() int {
	return c.w.Len() - c.hdrPos - HeaderSize
}

func (c *ContinuableOutput) finishChunk() {
	binary.LittleEndian.PutUint16(c.w.buf[c.hdrPos+2:], uint16(c.chunkLen()))
}

// AvailableSpace returns the payload bytes left in the current chunk.
func (c *ContinuableOutput) AvailableSpace() int {
	return c.limit - c.chunkLen()
}

// WriteContinue closes the current chunk and starts a CONTINUE chunk.
func (c *ContinuableOutput) WriteContinue() {
	c.finishChunk()
	c.startChunk(ContinueTag)
}

// WriteContinueIfRequired starts a CONTINUE chunk unless n bytes still fit
// in the current one.
func (c *ContinuableOutput) WriteContinueIfRequired(n int) {
	if c.AvailableSpace() < n {
		c.WriteContinue()
	}
}

// WriteUint8 writes one byte.
func (c *ContinuableOutput) WriteUint8(v uint8) {
	c.WriteContinueIfRequired(1)
	c.w.WriteUint8(v)
}

// WriteUint16 writes a little-endian uint16 without splitting it.
func (c *ContinuableOutput) WriteUint16(v uint16) {
	c.WriteContinueIfRequired(2)
	c.w.WriteUint16(v)
}

// WriteUint32 writes a little-endian uint32 without splitting it.
func (c *ContinuableOutput) WriteUint32(v uint32) {
	c.WriteContinueIfRequired(4)
	c.w.WriteUint32(v)
}

// WriteUint64 writes a little-endian uint64 without splitting it.
func (c *ContinuableOutput) WriteUint64(v uint64) {
	c.WriteContinueIfRequired(8)
	c.w.WriteUint64(v)
}

// WriteDouble writes a little-endian double without splitting it.
func (c *ContinuableOutput) WriteDouble(v float64) {
	c.WriteContinueIfRequired(8)
	c.w.WriteDouble(v)
}

// Write writes raw bytes, splitting them across chunks as needed.
func (c *ContinuableOutput) Write(p []byte) {
	for len(p) > 0 {
		if c.AvailableSpace() == 0 {
			c.WriteContinue()
		}
		n := min(len(p), c.AvailableSpace())
		c.w.Write(p[:n])
		p = p[n:]
	}
}

// WriteStringData writes an option flag byte followed by the character data
// of text.  The caller writes the length prefix.  The flag and the first
// character are kept in the same chunk.
func (c *ContinuableOutput) WriteStringData(text string) {
	is16 := HasMultibyte(text)
	keepTogether := 1 + 1 // flag byte, first character
	var flags uint8
	if is16 {
		flags |= 0x01
		keepTogether++
	}
	c.WriteContinueIfRequired(keepTogether)
	c.w.WriteUint8(flags)
	c.writeCharacterData(encodeUTF16(text), is16)
}

// WriteString writes a complete rich-extended string header (character
// count, option flags, optional run count, optional extended data size)
// followed by the character data.  The header and the first character are
// never split.  The caller writes the runs and the extended data afterwards.
func (c *ContinuableOutput) WriteString(text string, numberOfRichTextRuns, extendedDataSize int) {
	units := encodeUTF16(text)
	is16 := HasMultibyte(text)
	keepTogether := 2 + 1 + 1 // char count, flags, first character
	var flags uint8
	if is16 {
		flags |= 0x01
		keepTogether++
	}
	if numberOfRichTextRuns > 0 {
		flags |= 0x08
		keepTogether += 2
	}
	if extendedDataSize > 0 {
		flags |= 0x04
		keepTogether += 4
	}
	c.WriteContinueIfRequired(keepTogether)
	c.w.WriteUint16(uint16(len(units)))
	c.w.WriteUint8(flags)
	if numberOfRichTextRuns > 0 {
		c.w.WriteUint16(uint16(numberOfRichTextRuns))
	}
	if extendedDataSize > 0 {
		c.w.WriteUint32(uint32(extendedDataSize))
	}
	c.writeCharacterData(units, is16)
}

func (c *ContinuableOutput) writeCharacterData(units []uint16, is16 bool) {
	width := 1
	var flag uint8
	if is16 {
		width = 2
		flag = 0x01
	}
	i := 0
	for {
		n := min(len(units)-i, c.AvailableSpace()/width)
		for ; n > 0; n-- {
			if is16 {
				c.w.WriteUint16(units[i])
			} else {
				c.w.WriteUint8(uint8(units[i]))
			}
			i++
		}
		if i >= len(units) {
			return
		}
		c.WriteContinue()
		c.w.WriteUint8(flag)
	}
}

// TotalSize returns the number of bytes written so far, headers included.
func (c *ContinuableOutput) TotalSize() int {
	return c.w.Len()
}

// Chunks returns the number of physical records written so far.
func (c *ContinuableOutput) Chunks() int {
	return c.chunks
}

// Bytes finalises the current chunk header and returns the encoded physical
// records.
func (c *ContinuableOutput) Bytes() []byte {
	c.finishChunk()
	return c.w.Bytes()
}

// SplitPayload encodes payload as record tag, splitting it into CONTINUE
// records of at most limit payload bytes each.
func SplitPayload(tag uint16, payload []byte, limit int) []byte {
	c := NewContinuableOutputLimit(tag, limit)
	c.Write(payload)
	return c.Bytes()
}

// JoinPayload decodes the first logical record of data and returns its tag
// and its payload with all CONTINUE records joined.
func JoinPayload(data []byte) (uint16, []byte, error) {
	s := NewStream(data)
	if err := s.NextRecord(); err != nil {
		return 0, nil, errors.Wrap(err, "record: join payload")
	}
	p, err := s.ReadRemainder()
	if err != nil {
		return 0, nil, err
	}
	return s.Tag(), p, nil
}
