// Package contrib decodes contribution datasets.
//
// A dataset is a list of contribution records. Each record names one or more
// people ("who"), the format of the contribution ("what") and the topics it
// covers. Records are decoded from JSON, YAML or the CSV spreadsheet export:
//
//	[
//	  {
//	    "who": [{"name": "Ada", "affiliation": "Lab", "contact": "ada@example.org"}],
//	    "what": {"paper": "chapter 2", "web": ""},
//	    "topics": ["graphs", "layout"],
//	    "source": "internal",
//	    "category": "paper, review"
//	  }
//	]
//
// The French keys of the original dataset (qui, quoi, typologie, topic, nom,
// rattachement, papier) are accepted as aliases.
//
// # Error Handling
//
// The boundary between a failed load and a skipped record is fixed:
//
//   - The top-level value must be an array. Anything else fails the whole load
//     with [errors.ErrCodeInvalidDataset]; no partial dataset is returned.
//   - A malformed element (missing who, missing topics, empty name, unknown
//     source, not an object) is skipped and listed in [Report.Skipped].
package contrib
