package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// HistoryKind discriminates the HistoryItem union.
type HistoryKind string

const (
	MovieKind  HistoryKind = "movie"
	SeriesKind HistoryKind = "series"
)

// ErrInvalidHistoryItem is returned when a history payload does not match
// one of the declared variants.
var ErrInvalidHistoryItem = errors.New("invalid history item")

// HistoryItem is a watched-history record kept by the client. It is
// either a *MovieHistory or a *SeriesHistory.
type HistoryItem interface {
	Kind() HistoryKind
	Header() HistoryHeader
}

// HistoryHeader holds the fields shared by every variant.
type HistoryHeader struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Poster   string `json:"poster,omitempty"`
}

// MovieHistory is a single playable title.
type MovieHistory struct {
	HistoryHeader
	Link string `json:"link"`
}

func (m *MovieHistory) Kind() HistoryKind     { return MovieKind }
func (m *MovieHistory) Header() HistoryHeader { return m.HistoryHeader }

// SeriesHistory is a show with one or more saved seasons.
type SeriesHistory struct {
	HistoryHeader
	Seasons []SeasonHistory `json:"seasons"`
}

func (s *SeriesHistory) Kind() HistoryKind     { return SeriesKind }
func (s *SeriesHistory) Header() HistoryHeader { return s.HistoryHeader }

// SeasonHistory groups the saved episodes of one season.
type SeasonHistory struct {
	Number   string           `json:"number"`
	ID       string           `json:"id,omitempty"`
	Episodes []EpisodeHistory `json:"episodes"`
}

// EpisodeHistory is one playable episode.
type EpisodeHistory struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Episode string `json:"episode,omitempty"`
	Link    string `json:"link"`
}

// DecodeHistoryItem decodes one history record, rejecting unknown kinds
// and payloads missing any required field of their variant.
func DecodeHistoryItem(data []byte) (HistoryItem, error) {
	var probe struct {
		Type HistoryKind `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHistoryItem, err)
	}

	switch probe.Type {
	case MovieKind:
		var m MovieHistory
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidHistoryItem, err)
		}
		if err := m.validate(); err != nil {
			return nil, err
		}
		return &m, nil
	case SeriesKind:
		var s SeriesHistory
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidHistoryItem, err)
		}
		if err := s.validate(); err != nil {
			return nil, err
		}
		return &s, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrInvalidHistoryItem)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidHistoryItem, probe.Type)
	}
}

// EncodeHistoryItem encodes a record with its "type" discriminator.
func EncodeHistoryItem(item HistoryItem) ([]byte, error) {
	switch v := item.(type) {
	case *MovieHistory:
		return json.Marshal(struct {
			Type HistoryKind `json:"type"`
			*MovieHistory
		}{MovieKind, v})
	case *SeriesHistory:
		return json.Marshal(struct {
			Type HistoryKind `json:"type"`
			*SeriesHistory
		}{SeriesKind, v})
	default:
		return nil, fmt.Errorf("%w: unsupported variant %T", ErrInvalidHistoryItem, item)
	}
}

func (h HistoryHeader) validate() error {
	switch {
	case h.ID == "":
		return missingField("id")
	case h.Name == "":
		return missingField("name")
	case h.Provider == "":
		return missingField("provider")
	}
	return nil
}

func (m *MovieHistory) validate() error {
	if err := m.HistoryHeader.validate(); err != nil {
		return err
	}
	if m.Link == "" {
		return missingField("link")
	}
	return nil
}

func (s *SeriesHistory) validate() error {
	if err := s.HistoryHeader.validate(); err != nil {
		return err
	}
	if len(s.Seasons) == 0 {
		return missingField("seasons")
	}
	for i, season := range s.Seasons {
		if season.Number == "" {
			return missingField(fmt.Sprintf("seasons[%d].number", i))
		}
		if len(season.Episodes) == 0 {
			return missingField(fmt.Sprintf("seasons[%d].episodes", i))
		}
		for j, ep := range season.Episodes {
			if ep.ID == "" {
				return missingField(fmt.Sprintf("seasons[%d].episodes[%d].id", i, j))
			}
			if ep.Link == "" {
				return missingField(fmt.Sprintf("seasons[%d].episodes[%d].link", i, j))
			}
		}
	}
	return nil
}

func missingField(name string) error {
	return fmt.Errorf("%w: missing %s", ErrInvalidHistoryItem, name)
}
