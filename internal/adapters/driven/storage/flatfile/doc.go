// Package flatfile provides the file-based EntryStore.
//
// Layout under the store root:
//
//	<category>/<YYYYMMDD_HHMMSS>_<slug>.md   record files (source of truth)
//	_attachments/<fingerprint>/<name>        write-once attachment copies
//	index.json                               derived index, rebuilt wholesale
//
// The store assumes a single active writer per root. It does not lock
// across processes.
package flatfile
