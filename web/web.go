// Package web 打包 API 提供的 HTML 模板与浏览器静态资源
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Pages 已解析的页面模板
type Pages struct {
	tmpl *template.Template
}

// LoadPages 解析全部内嵌模板
func LoadPages() (*Pages, error) {
	tmpl, err := template.New("pages").Funcs(template.FuncMap{
		"pct": func(score float64) string { return fmt.Sprintf("%.2f", score*100) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Pages{tmpl: tmpl}, nil
}

// Render 渲染指定页面
func (p *Pages) Render(w io.Writer, name string, data any) error {
	return p.tmpl.ExecuteTemplate(w, name, data)
}

// Static 返回以 static/ 为根的静态资源
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// PageData 各页面共用的视图数据
type PageData struct {
	Title     string
	Username  string
	Error     string
	Dashboard any
}
