package engine

// transcribePrompt asks for the raw text of an image with nothing added.
const transcribePrompt = `Perform OCR on this image and extract all recognisable text.
Output the text content directly. Do not include any extra explanation, heading or preamble.`

// TranscribePrompt returns the prompt sent with every image.
func TranscribePrompt() string {
	return transcribePrompt
}
