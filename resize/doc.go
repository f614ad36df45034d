// Package resize adapts a fetched image to one provider's encoded-size budget
// through a three-tier escalation: direct base64 encode, lossy re-encode at
// the same dimensions, then geometric downscale. Each tier runs only when the
// previous tier's output still exceeds the budget.
package resize
