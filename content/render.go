package content

import "fmt"

// Renderer turns a File of one Format into Content.
type Renderer interface {
	Format() Format
	Render(f *File, opts RenderOptions) (*Content, error)
}

// Converter turns Markdown into HTML.
type Converter interface {
	Convert(src string) (string, error)
}

// RendererFor returns the Renderer for format. Texted files are converted
// with conv.
func RendererFor(format Format, conv Converter) (Renderer, error) {
	switch format {
	case FormatTexted:
		return &TextedRenderer{Converter: conv}, nil
	case FormatHTML:
		return &HTMLRenderer{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Render picks the Renderer for f.Format and renders f.
func Render(f *File, opts RenderOptions, conv Converter) (*Content, error) {
	r, err := RendererFor(f.Format, conv)
	if err != nil {
		return nil, &FileError{Path: f.Path, Err: err}
	}
	return r.Render(f, opts)
}

func checkFormat(r Renderer, f *File) error {
	if f.Format != r.Format() {
		return &FileError{Path: f.Path, Err: fmt.Errorf("%w: %s renderer got %s file", ErrUnsupportedFormat, r.Format(), f.Format)}
	}
	return nil
}
