package content

// HTMLRenderer renders raw HTML files with the texted header. The body is
// passed through as written.
type HTMLRenderer struct{}

func (r *HTMLRenderer) Format() Format { return FormatHTML }

func (r *HTMLRenderer) Render(f *File, opts RenderOptions) (*Content, error) {
	if err := checkFormat(r, f); err != nil {
		return nil, err
	}

	header, cur := headerOrFallback(f)
	title, cur := ExtractTitle(FormatHTML, cur)
	body := ExtractBody(cur, opts)

	if p, ok := opts.Preview(); ok {
		body = RewriteHTMLImages(p.ImagePrefix, body)
	}

	return &Content{
		Header:   header,
		Link:     f.Link,
		Title:    title,
		Rendered: body,
	}, nil
}
