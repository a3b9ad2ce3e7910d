package domain

// ProbeResult is a structural look at uploaded bytes: enough to tell the
// caller what was received, never an interpretation of the content.
type ProbeResult struct {
	Pages    int    `json:"pages,omitempty"`
	Readable bool   `json:"readable"`
	Note     string `json:"note,omitempty"`
}
