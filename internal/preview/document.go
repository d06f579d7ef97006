package preview

import (
	"net/url"
	"path"
	"strings"
)

// Preview image dimensions advertised to crawlers.
const (
	ImageWidth  = 1200
	ImageHeight = 630
)

const (
	notFoundTitle       = "Article not found"
	notFoundDescription = "The article you are looking for is no longer available."
)

// Site describes the public website previews point at.
type Site struct {
	BaseURL       string
	Name          string
	Description   string
	DefaultImage  string
	TwitterHandle string
}

// Image is the og:image group.
type Image struct {
	URL       string
	SecureURL string
	Type      string
	Width     int
	Height    int
	Alt       string
}

// ArticleMeta is the Open Graph article namespace.
type ArticleMeta struct {
	PublishedTime string
	ModifiedTime  string
	Author        string
	Section       string
	Tags          []string
}

// Document is the typed metadata behind a rendered preview page. Values are
// plain text; escaping happens when the document is rendered.
type Document struct {
	Lang            Language
	Locale          string
	AlternateLocale string
	OGType          string
	Title           string
	OGTitle         string
	Description     string
	URL             string
	SiteName        string
	TwitterSite     string
	Image           Image
	Article         *ArticleMeta

	Heading   string
	Excerpt   string
	ShowImage bool
	LinkText  string
}

// Builder assembles documents for one site.
type Builder struct {
	site Site
}

// NewBuilder returns a Builder for site.
func NewBuilder(site Site) *Builder {
	site.BaseURL = strings.TrimRight(site.BaseURL, "/")
	return &Builder{site: site}
}

// Article builds the preview document for a resolved post.
func (b *Builder) Article(post Post, lang Language) Document {
	postType := ParsePostType(string(post.PostType))
	section := sectionName(postType, lang)
	articleURL := ArticleURL(b.site.BaseURL, lang, postType, post.Key())
	imageURL := ImageURL(b.site.BaseURL, post.Image, b.site.DefaultImage)

	description := post.Excerpt
	if description == "" {
		description = b.site.Description
	}
	author := post.Author
	if author == "" {
		author = b.site.Name
	}
	category := post.Category
	if category == "" {
		category = section
	}

	meta := &ArticleMeta{
		PublishedTime: FormatTimestamp(post.CreatedAt),
		Author:        author,
		Section:       category,
		Tags:          NormalizeTags(post.Tags),
	}
	if post.UpdatedAt != "" {
		meta.ModifiedTime = FormatTimestamp(post.UpdatedAt)
	}

	doc := b.base(lang)
	doc.OGType = "article"
	doc.Title = post.Title + " | " + section + " - " + b.site.Name
	doc.OGTitle = post.Title
	doc.Description = description
	doc.URL = articleURL
	doc.Image = b.image(imageURL, post.Title)
	doc.Article = meta
	doc.Heading = post.Title
	doc.Excerpt = post.Excerpt
	doc.ShowImage = post.Image != ""
	doc.LinkText = linkText(postType, lang)
	return doc
}

// NotFound builds the generic document served when no post resolves. The URL
// is rebuilt from the requested type and raw identifier so stale links still
// deduplicate on the crawler side.
func (b *Builder) NotFound(postType PostType, identifier string, lang Language) Document {
	postType = ParsePostType(string(postType))
	articleURL := ArticleURL(b.site.BaseURL, lang, postType, identifier)

	doc := b.base(lang)
	doc.OGType = "website"
	doc.Title = notFoundTitle + " - " + b.site.Name
	doc.OGTitle = notFoundTitle
	doc.Description = notFoundDescription
	doc.URL = articleURL
	doc.Image = b.image(ImageURL(b.site.BaseURL, "", b.site.DefaultImage), notFoundTitle)
	doc.Heading = notFoundTitle
	doc.Excerpt = notFoundDescription
	doc.LinkText = b.site.Name
	return doc
}

func (b *Builder) base(lang Language) Document {
	locale, alternate := "es_ES", "en_US"
	if lang == LanguageEN {
		locale, alternate = alternate, locale
	}
	return Document{
		Lang:            lang,
		Locale:          locale,
		AlternateLocale: alternate,
		SiteName:        b.site.Name,
		TwitterSite:     b.site.TwitterHandle,
	}
}

func (b *Builder) image(imageURL, alt string) Image {
	return Image{
		URL:       imageURL,
		SecureURL: SecureURL(imageURL),
		Type:      ImageMIMEType(imageURL),
		Width:     ImageWidth,
		Height:    ImageHeight,
		Alt:       alt,
	}
}

// ArticleURL builds the canonical public URL of a post.
func ArticleURL(baseURL string, lang Language, postType PostType, key string) string {
	return strings.TrimRight(baseURL, "/") + "/" + string(lang) + sectionPath(postType) + "/" + url.PathEscape(key)
}

// ImageURL returns image when it is absolute, image resolved against baseURL
// when relative, and defaultImage resolved against baseURL when empty.
func ImageURL(baseURL, image, defaultImage string) string {
	image = strings.TrimSpace(image)
	if image == "" {
		image = defaultImage
	}
	if isAbsoluteURL(image) {
		return image
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	ref, refErr := url.Parse(image)
	if err != nil || refErr != nil {
		return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(image, "/")
	}
	return base.ResolveReference(ref).String()
}

// ImageMIMEType maps the image URL's extension to a MIME type, defaulting to
// image/jpeg.
func ImageMIMEType(imageURL string) string {
	p := imageURL
	if u, err := url.Parse(imageURL); err == nil {
		p = u.Path
	}
	switch strings.ToLower(strings.TrimPrefix(path.Ext(p), ".")) {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// SecureURL forces the https scheme on an http URL.
func SecureURL(u string) string {
	if len(u) >= len("http://") && strings.EqualFold(u[:len("http://")], "http://") {
		return "https://" + u[len("http://"):]
	}
	return u
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func sectionPath(postType PostType) string {
	if postType == PostTypeNews {
		return "/noticias"
	}
	return "/blog"
}

func sectionName(postType PostType, lang Language) string {
	switch {
	case postType == PostTypeNews && lang == LanguageEN:
		return "News"
	case postType == PostTypeNews:
		return "Noticias"
	default:
		return "Blog"
	}
}

func linkText(postType PostType, lang Language) string {
	switch {
	case lang == LanguageEN:
		return "Read the full article"
	case postType == PostTypeNews:
		return "Leer la noticia completa"
	default:
		return "Leer el artículo completo"
	}
}
