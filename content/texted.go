package content

import (
	"errors"
	"fmt"
)

// TextedRenderer renders Markdown files with the texted header.
type TextedRenderer struct {
	Converter Converter
}

func (r *TextedRenderer) Format() Format { return FormatTexted }

func (r *TextedRenderer) Render(f *File, opts RenderOptions) (*Content, error) {
	if err := checkFormat(r, f); err != nil {
		return nil, err
	}
	if r.Converter == nil {
		return nil, &FileError{Path: f.Path, Err: fmt.Errorf("%w: no markdown converter", ErrRender)}
	}

	header, cur := headerOrFallback(f)
	title, cur := ExtractTitle(FormatTexted, cur)
	body := ExtractBody(cur, opts)

	body, err := RemoveComments(body)
	if err != nil {
		return nil, &FileError{Path: f.Path, Err: err}
	}
	if p, ok := opts.Preview(); ok {
		body = RewriteMarkdownImages(p.ImagePrefix, body)
	}

	rendered, err := r.Converter.Convert(body)
	if err != nil {
		if errors.Is(err, ErrRender) {
			return nil, &FileError{Path: f.Path, Err: err}
		}
		return nil, &FileError{Path: f.Path, Err: fmt.Errorf("%w: %w", ErrRender, err)}
	}

	return &Content{
		Header:   header,
		Link:     f.Link,
		Title:    title,
		Rendered: rendered,
	}, nil
}
