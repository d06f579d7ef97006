// Package preview decides how a share-preview request is answered: it
// classifies the caller, resolves the requested post and assembles the
// Open Graph / Twitter Card document handed to link-preview crawlers.
package preview
