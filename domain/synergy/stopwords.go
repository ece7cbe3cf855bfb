package synergy

// defaultStopwords is the canonical list shared by matching, search and map
// labels. It merges the common English function words with the generic goal
// verbs users tend to write ("I want to start...", "planning to learn...").
var defaultStopwords = []string{
	// articles, conjunctions, prepositions
	"the", "a", "an", "and", "or", "but", "so", "if", "of", "to", "in", "on", "at", "by",
	"for", "with", "about", "against", "between", "into", "through", "during", "before",
	"after", "above", "below", "from", "up", "down", "out", "off", "over", "under",
	"again", "further", "then", "once", "here", "there", "when", "where", "why", "how",
	"all", "any", "both", "each", "few", "more", "most", "other", "some", "such",
	"no", "nor", "not", "only", "own", "same", "than", "too", "very",
	"can", "will", "just", "don", "should", "now",

	// contraction fragments
	"ain", "aren", "couldn", "didn", "doesn", "hadn", "hasn", "haven", "isn", "mightn",
	"mustn", "needn", "shan", "shouldn", "wasn", "weren", "won", "wouldn",

	// pronouns
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you", "your", "yours",
	"yourself", "yourselves", "he", "him", "his", "himself", "she", "her", "hers",
	"herself", "it", "its", "itself", "they", "them", "their", "theirs", "themselves",
	"what", "which", "who", "whom", "this", "that", "these", "those",

	// auxiliaries
	"am", "is", "are", "was", "were", "be", "been", "being", "have", "has", "had",
	"having", "do", "does", "did", "doing",

	// generic goal verbs
	"get", "make", "go", "going", "learn", "improve", "become", "start", "try", "want",
	"plan", "focus",
}

// DefaultStopwords returns a copy of the canonical stopword list.
func DefaultStopwords() []string {
	words := make([]string, len(defaultStopwords))
	copy(words, defaultStopwords)
	return words
}
