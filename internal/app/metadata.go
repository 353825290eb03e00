package app

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

type MetadataTemplates struct {
	Title               string
	Description         string
	PlaylistTitle       string
	PlaylistDescription string
}

// Metadata renders video and playlist text for a chapter.
type Metadata struct {
	title               *template.Template
	description         *template.Template
	playlistTitle       *template.Template
	playlistDescription *template.Template
}

type chapterData struct {
	Book    string
	Chapter int
}

var templateFuncs = template.FuncMap{
	"hashtag": func(s string) string { return strings.ReplaceAll(s, " ", "") },
}

func NewMetadata(t MetadataTemplates) (*Metadata, error) {
	parse := func(name, text string) (*template.Template, error) {
		tmpl, err := template.New(name).Funcs(templateFuncs).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		return tmpl, nil
	}

	m := &Metadata{}
	var err error
	if m.title, err = parse("title", t.Title); err != nil {
		return nil, err
	}
	if m.description, err = parse("description", t.Description); err != nil {
		return nil, err
	}
	if m.playlistTitle, err = parse("playlist_title", t.PlaylistTitle); err != nil {
		return nil, err
	}
	if m.playlistDescription, err = parse("playlist_description", t.PlaylistDescription); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metadata) Title(book string, chapter int) (string, error) {
	return render(m.title, chapterData{Book: book, Chapter: chapter})
}

func (m *Metadata) Description(book string, chapter int) (string, error) {
	return render(m.description, chapterData{Book: book, Chapter: chapter})
}

func (m *Metadata) PlaylistTitle(book string) (string, error) {
	return render(m.playlistTitle, chapterData{Book: book})
}

func (m *Metadata) PlaylistDescription(book string) (string, error) {
	return render(m.playlistDescription, chapterData{Book: book})
}

func render(tmpl *template.Template, data chapterData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
