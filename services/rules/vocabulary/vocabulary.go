// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package vocabulary embeds the rule-engine vocabularies into the binary.
//
// The vocabularies are the calibrated keyword and regex tables the rule
// engine checks free text against: category minimum lengths, narrative
// element patterns, vague-phrase patterns, causal-chain markers, and
// corrective-action requirement patterns. Embedding them keeps the engine
// dependency-free at runtime while still allowing the tables to be tuned
// without touching engine code.
package vocabulary

import _ "embed"

// QualityVocabulary is the raw YAML describing every pattern table the
// rule engine compiles at construction time. The enforcement and scoring
// behavior of the whole pipeline is calibrated against these exact
// vocabularies; do not "improve" them casually.
//
//go:embed quality_vocabulary.yaml
var QualityVocabulary []byte
