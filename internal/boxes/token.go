package boxes

// Token is a positioned text unit produced by the document layout provider.
// Coordinates share one unit and axis orientation within a document.
type Token struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Text   string  `json:"text"`
}

// VCenter returns the vertical center of the token box
func (t Token) VCenter() float64 {
	return (t.Top + t.Bottom) / 2
}
