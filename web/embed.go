// Package web embeds the shell's templates and static assets.
package web

import (
	"embed"
	"io/fs"

	"github.com/rs/zerolog/log"
)

//go:embed static templates
var content embed.FS

var (
	static    = mustSub("static")
	templates = mustSub("templates")
)

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(content, dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", dir).Msg("embedded directory missing")
	}
	return sub
}

// StaticFS returns the static assets rooted at static/.
func StaticFS() fs.FS { return static }

// TemplatesFS returns the page templates rooted at templates/.
func TemplatesFS() fs.FS { return templates }

// ReadStatic returns one static asset by name.
func ReadStatic(name string) ([]byte, error) {
	return fs.ReadFile(static, name)
}
