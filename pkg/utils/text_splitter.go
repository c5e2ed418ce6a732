package utils

// SplitText cuts document text into rune-based chunks of at most chunkSize
// characters for embedding. The trailing `overlap` characters of each chunk
// reappear at the start of the next so a sentence cut at a boundary still
// retrieves whole. An overlap at or above chunkSize degenerates to disjoint
// chunks instead of looping.
func SplitText(text string, chunkSize int, overlap int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	runes := []rune(text)
	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
