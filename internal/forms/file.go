package forms

import "mime/multipart"

// FileField is an image input: either a URL string (kept or replaced as text)
// or a newly chosen file pending upload.
type FileField struct {
	URL    string
	Set    bool
	Upload *multipart.FileHeader
}

// Pending reports whether a file must be uploaded before the row is written.
func (f FileField) Pending() bool {
	return f.Upload != nil
}

// Submitted reports whether the field was part of the submission at all.
func (f FileField) Submitted() bool {
	return f.Set || f.Upload != nil
}
