package media

// Payload is an image as it travels through ingestion. A stage that
// changes the bytes hands back a new Payload and leaves its input intact.
type Payload struct {
	Data   []byte
	Mime   string
	Format Format
}

func NewPayload(data []byte, format Format) *Payload {
	return &Payload{Data: data, Mime: format.Mime(), Format: format}
}

// WithData returns a copy of the payload carrying new bytes
func (p *Payload) WithData(data []byte) *Payload {
	return &Payload{Data: data, Mime: p.Mime, Format: p.Format}
}

func (p *Payload) Size() int {
	return len(p.Data)
}
