package auth

import "github.com/pkg/browser"

// openURL is a test seam for browser.OpenURL.
var openURL = browser.OpenURL

// BrowserOpener opens URLs in the user's default browser.
type BrowserOpener struct{}

func (BrowserOpener) Open(url string) error {
	return openURL(url)
}
