package config

const (
	// TopicRawChanged is the NSQ topic announcing a staged raw payload that changed.
	TopicRawChanged = "corpus.raw.changed"

	// TopicBatchWritten is the NSQ topic announcing a rewritten structured batch.
	TopicBatchWritten = "corpus.batch.written"

	// TopicCorpusExported is the NSQ topic announcing a finished dataset export.
	TopicCorpusExported = "corpus.exported"
)
