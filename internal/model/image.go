package model

// Image is the image slot of a task being edited. It holds either a freshly
// chosen file, the URL of the image already stored by the backend, or nothing.
type Image interface {
	isImage()
}

// NoImage is the empty slot.
type NoImage struct{}

// NewFile is an upload chosen in the form that has not been sent yet.
type NewFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExistingURL is the image the backend already stores for the task.
type ExistingURL string

func (NoImage) isImage()     {}
func (NewFile) isImage()     {}
func (ExistingURL) isImage() {}

// HasImage reports whether the slot satisfies the image requirement.
func HasImage(img Image) bool {
	switch v := img.(type) {
	case NewFile:
		return len(v.Data) > 0 || v.Filename != ""
	case ExistingURL:
		return v != ""
	}
	return false
}
