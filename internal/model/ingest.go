package model

// IngestRecord is a send request delivered over the message bus.
type IngestRecord struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Content string `json:"content"`
}
