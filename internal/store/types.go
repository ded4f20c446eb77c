// Package store builds the in-memory TF-IDF index over a corpus snapshot:
// the vocabulary, one L2-normalized sparse vector per document and an
// inverted posting list per term.
package store

// Stop word list names accepted by StopWordList.
const (
	StopWordsEnglish = "english"
	StopWordsNone    = "none"
)

// Weight is one non-zero component of a sparse vector.
type Weight struct {
	Term  int
	Value float64
}

// Vector is a sparse vector sorted by ascending term index.
type Vector []Weight

// Posting records a term's weight in one document.
type Posting struct {
	// Doc is the document's corpus position, not its ID.
	Doc   int
	Value float64
}

// Stats describes a built index.
type Stats struct {
	Generation uint64 `json:"generation"`
	Documents  int    `json:"documents"`
	Terms      int    `json:"terms"`
	Postings   int    `json:"postings"`
}

// EnglishStopWords are function words that carry no retrieval signal in
// support text. Domain words such as "amount", "bill" and "call" are
// deliberately absent.
var EnglishStopWords = []string{
	"a", "about", "above", "after", "again", "against", "all", "am", "an",
	"and", "any", "are", "as", "at", "be", "because", "been", "before",
	"being", "below", "between", "both", "but", "by", "can", "could", "did",
	"do", "does", "doing", "down", "during", "each", "few", "for", "from",
	"further", "had", "has", "have", "having", "he", "her", "here", "hers",
	"herself", "him", "himself", "his", "how", "i", "if", "in", "into", "is",
	"it", "its", "itself", "me", "more", "most", "my", "myself", "no", "nor",
	"not", "of", "off", "on", "once", "only", "or", "other", "our", "ours",
	"ourselves", "out", "over", "own", "same", "she", "should", "so", "some",
	"such", "than", "that", "the", "their", "theirs", "them", "themselves",
	"then", "there", "these", "they", "this", "those", "through", "to", "too",
	"under", "until", "up", "very", "was", "we", "were", "what", "when",
	"where", "which", "while", "who", "whom", "why", "will", "with", "would",
	"you", "your", "yours", "yourself", "yourselves",
}
