// Package format identifies file formats from content.
//
// Detection works on a bounded byte prefix and an optional filename hint,
// never on the whole stream. Signature (magic byte) matches score highest;
// ZIP-based container formats are refined by inspecting archive member
// names; extension lookup is a low-confidence fallback. Results are ranked
// by descending confidence, and an empty result set means "unknown format"
// — detection itself never fails.
package format
