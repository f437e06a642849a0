package initialdata

import "strings"

// Data is the subset of ytInitialData this module reads.
type Data struct {
	Contents struct {
		TwoColumnSearchResultsRenderer struct {
			PrimaryContents struct {
				SectionListRenderer struct {
					Contents []section `json:"contents"`
				} `json:"sectionListRenderer"`
			} `json:"primaryContents"`
		} `json:"twoColumnSearchResultsRenderer"`
	} `json:"contents"`
}

type section struct {
	ItemSectionRenderer *struct {
		Contents []struct {
			VideoRenderer *VideoRenderer `json:"videoRenderer"`
		} `json:"contents"`
	} `json:"itemSectionRenderer"`
}

// Run is one styled fragment of a Text.
type Run struct {
	Text               string `json:"text"`
	NavigationEndpoint struct {
		BrowseEndpoint struct {
			BrowseID string `json:"browseId"`
		} `json:"browseEndpoint"`
	} `json:"navigationEndpoint"`
}

// Text is YouTube's display text: either simpleText or a list of runs.
type Text struct {
	SimpleText string `json:"simpleText"`
	Runs       []Run  `json:"runs"`
}

// FirstRun returns the text of the first run, or simpleText without runs.
func (t Text) FirstRun() string {
	if len(t.Runs) > 0 {
		return t.Runs[0].Text
	}
	return t.SimpleText
}

// String returns simpleText, or all runs joined.
func (t Text) String() string {
	if t.SimpleText != "" || len(t.Runs) == 0 {
		return t.SimpleText
	}
	var sb strings.Builder
	for _, r := range t.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Thumbnail is one renderer thumbnail.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// VideoRenderer is a single video entry of the search results.
type VideoRenderer struct {
	VideoID           string `json:"videoId"`
	Title             Text   `json:"title"`
	OwnerText         Text   `json:"ownerText"`
	LengthText        Text   `json:"lengthText"`
	ViewCountText     Text   `json:"viewCountText"`
	PublishedTimeText Text   `json:"publishedTimeText"`
	Thumbnail         struct {
		Thumbnails []Thumbnail `json:"thumbnails"`
	} `json:"thumbnail"`
}

// ChannelID returns the browse id of the first owner run.
func (r *VideoRenderer) ChannelID() string {
	if len(r.OwnerText.Runs) == 0 {
		return ""
	}
	return r.OwnerText.Runs[0].NavigationEndpoint.BrowseEndpoint.BrowseID
}

// Walk calls fn for every video renderer in document order until fn
// returns false.
func (d *Data) Walk(fn func(*VideoRenderer) bool) {
	if d == nil {
		return
	}
	for _, s := range d.Contents.TwoColumnSearchResultsRenderer.PrimaryContents.SectionListRenderer.Contents {
		if s.ItemSectionRenderer == nil {
			continue
		}
		for _, item := range s.ItemSectionRenderer.Contents {
			if item.VideoRenderer == nil {
				continue
			}
			if !fn(item.VideoRenderer) {
				return
			}
		}
	}
}

// Renderers returns up to limit renderers in document order; limit <= 0
// means all of them.
func (d *Data) Renderers(limit int) []*VideoRenderer {
	var out []*VideoRenderer
	d.Walk(func(r *VideoRenderer) bool {
		out = append(out, r)
		return limit <= 0 || len(out) < limit
	})
	return out
}
