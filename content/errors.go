package content

import "errors"

var (
	// ErrUnsupportedFormat is returned for unknown extensions and for a file
	// handed to the renderer of the other format.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrInvalidHeader is returned when no header field is present.
	ErrInvalidHeader = errors.New("invalid texted header")
	// ErrMissingCommentTerminator is returned when a header opened with "<!--"
	// is never closed with "-->".
	ErrMissingCommentTerminator = errors.New("end of comment in the header is missing")
	// ErrInvalidDate is returned when the DATE field cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")
	// ErrUnterminatedComment is returned when a body comment has no "-->".
	ErrUnterminatedComment = errors.New("error finding end of comment")
	// ErrRender is returned when Markdown conversion fails.
	ErrRender = errors.New("render error")
	// ErrNotFound is returned when a link does not resolve to a file.
	ErrNotFound = errors.New("content not found")
)

// FileError ties an error to the content file that caused it.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + " - file=" + e.Path
}

func (e *FileError) Unwrap() error {
	return e.Err
}
