// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package aggregator

import (
	"fmt"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/offer"
	"github.com/goccy/go-json"
)

const completedField = "completed"

// Entry is what one provider showed the user during the current pass.
type Entry struct {
	ShownCount  int           `json:"shown_count"`
	ShownOffers []offer.Offer `json:"shown_offers"`
}

// Pass is the per-user aggregation cache. It serializes flat, one key per
// provider plus "completed".
type Pass struct {
	Entries   map[offer.Source]*Entry
	Completed bool
}

func newPass() *Pass {
	return &Pass{Entries: make(map[offer.Source]*Entry)}
}

func (p *Pass) MarshalJSON() ([]byte, error) {
	doc := make(map[string]interface{}, len(p.Entries)+1)
	for source, entry := range p.Entries {
		doc[string(source)] = entry
	}
	doc[completedField] = p.Completed
	return json.Marshal(doc)
}

func (p *Pass) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	p.Entries = make(map[offer.Source]*Entry, len(doc))
	p.Completed = false

	for key, raw := range doc {
		if key == completedField {
			if err := json.Unmarshal(raw, &p.Completed); err != nil {
				return fmt.Errorf("invalid completed flag: %w", err)
			}
			continue
		}

		source := offer.Source(key)
		if !source.Valid() {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return fmt.Errorf("invalid %s entry: %w", key, err)
		}
		p.Entries[source] = &entry
	}
	return nil
}

// decodePass returns an empty pass for nil input.
func decodePass(data []byte) (*Pass, error) {
	p := newPass()
	if len(data) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPass, err)
	}
	return p, nil
}
