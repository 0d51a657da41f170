// Package document streams a text file, splits it into chunks, tokenizes
// each chunk and hands the distinct words of every batch to a callback.
//
// A chunk is one line by default, or the text between two matches of a
// delimiter pattern. Chunks are tokenized with a Tokenizer; when a
// delimiter is set and no tokenizer is, each chunk is itself a word.
// Chunks larger than MaxChunkBytes are skipped and counted.
//
// Example:
//
//	p, err := document.NewProcessor(document.DefaultOptions())
//	if err != nil {
//		return err
//	}
//	skipped, err := p.ExtractWords(ctx, "/notes/todo.txt", func(word, doc string) {
//		index.Put(word, doc)
//	})
//	if errors.Is(err, document.ErrNonUTF8) {
//		// binary or mis-encoded file
//	}
package document
