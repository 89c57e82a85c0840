// Package storage owns the collector's output file.
//
// The file is append-only: it is created when missing, never truncated, and
// opened and closed once per batch so that an interrupted run leaves every
// finished batch on disk. Each stored post is terminated by a newline.
//
// Usage:
//
//	manager, err := storage.NewManager("tweet_data.txt")
//	if err != nil {
//	    return err
//	}
//	if err := manager.AppendLines(texts); err != nil {
//	    return err
//	}
//	fmt.Println(manager.TotalLines())
package storage
