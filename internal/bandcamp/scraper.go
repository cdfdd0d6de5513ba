// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

package bandcamp

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/net/html"
)

func parseDocument(body []byte) (*html.Node, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// parseSupporters extracts supporter usernames from an item page. The
// primary source is the "#collectors-data" JSON blob; when it is absent
// or empty the visible "a.fan.pic" thumbnail links are used instead.
// Order is preserved and duplicates are dropped.
func parseSupporters(doc *html.Node) ([]string, error) {
	if node := findByID(doc, "collectors-data"); node != nil {
		if blob := attrValue(node, "data-blob"); blob != "" {
			var collectors collectorsBlob
			if err := json.Unmarshal([]byte(blob), &collectors); err != nil {
				return nil, fmt.Errorf("decode collectors blob: %w", err)
			}
			names := make([]string, 0, len(collectors.Thumbs))
			for _, t := range collectors.Thumbs {
				names = append(names, t.Username)
			}
			if deduped := dedupeNonEmpty(names); len(deduped) > 0 {
				return deduped, nil
			}
		}
	}
	return fanLinkUsernames(doc), nil
}

// fanLinkUsernames collects usernames from fan thumbnail anchors, whose
// href is the fan page URL (https://bandcamp.com/<username>).
func fanLinkUsernames(doc *html.Node) []string {
	var names []string
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "a" {
			return
		}
		if !hasClass(n, "fan") || !hasClass(n, "pic") {
			return
		}
		href := attrValue(n, "href")
		if href == "" {
			return
		}
		u, err := url.Parse(href)
		if err != nil {
			return
		}
		if name := strings.Trim(u.Path, "/"); name != "" && !strings.Contains(name, "/") {
			names = append(names, name)
		}
	})
	return dedupeNonEmpty(names)
}

// parseTags extracts the tag set from "a.tag" anchors on an item page,
// in page order, deduplicated.
func parseTags(doc *html.Node) []string {
	var tags []string
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "a" {
			return
		}
		if !hasClass(n, "tag") {
			return
		}
		if tag := strings.TrimSpace(nodeText(n)); tag != "" {
			tags = append(tags, tag)
		}
	})
	return dedupeNonEmpty(tags)
}

// parsePagedata decodes the "#pagedata" data-blob JSON carried by both
// item and fan pages.
func parsePagedata(doc *html.Node) (*pageBlob, error) {
	node := findByID(doc, "pagedata")
	if node == nil {
		return nil, fmt.Errorf("no pagedata element")
	}
	blob := attrValue(node, "data-blob")
	if blob == "" {
		return nil, fmt.Errorf("pagedata element has no data-blob")
	}
	var page pageBlob
	if err := json.Unmarshal([]byte(blob), &page); err != nil {
		return nil, fmt.Errorf("decode pagedata blob: %w", err)
	}
	return &page, nil
}

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func findByID(n *html.Node, id string) *html.Node {
	var found *html.Node
	walk(n, func(node *html.Node) {
		if found == nil && node.Type == html.ElementNode && attrValue(node, "id") == id {
			found = node
		}
	})
	return found
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrValue(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
	})
	return sb.String()
}

func dedupeNonEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
