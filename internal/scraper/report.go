package scraper

// Report records which fields a detail extraction actually found on the
// page and which were left at their defaults.
type Report struct {
	URL     string   `json:"url"`
	Found   []string `json:"found"`
	Missing []string `json:"missing"`
}

// Has reports whether field was found.
func (r Report) Has(field string) bool {
	for _, f := range r.Found {
		if f == field {
			return true
		}
	}
	return false
}

// Complete reports whether no field was defaulted.
func (r Report) Complete() bool {
	return len(r.Missing) == 0
}

// fieldTracker marks fields as found while an extractor fills a record.
// Field order in the report follows the order given to newFieldTracker.
type fieldTracker struct {
	order []string
	found map[string]bool
}

func newFieldTracker(fields ...string) *fieldTracker {
	return &fieldTracker{
		order: fields,
		found: make(map[string]bool, len(fields)),
	}
}

// set assigns value to *dst and marks field found, unless the field was
// already found or value is empty. It reports whether it assigned.
func (t *fieldTracker) set(field string, dst *string, value string) bool {
	if value == "" || t.found[field] {
		return false
	}
	*dst = value
	t.found[field] = true
	return true
}

func (t *fieldTracker) mark(field string) {
	t.found[field] = true
}

func (t *fieldTracker) has(field string) bool {
	return t.found[field]
}

func (t *fieldTracker) report(url string) Report {
	r := Report{URL: url, Found: []string{}, Missing: []string{}}
	for _, f := range t.order {
		if t.found[f] {
			r.Found = append(r.Found, f)
		} else {
			r.Missing = append(r.Missing, f)
		}
	}
	return r
}
