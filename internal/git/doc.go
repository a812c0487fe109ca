// Package git synchronizes a local directory with a revision of a remote
// repository.
//
// Two backends implement the same contract:
//
// CLI shells out to the git executable: `git fetch origin` when the
// destination exists, `git clone <url> <dst>` otherwise, followed by
// `git checkout --force <rev>` and `git reset --hard <target>`.
//
// Plumbing drives go-git directly: it lists and fetches origin, rewires HEAD
// through an atomic reference transaction and checks the tree out itself.
//
// Example Usage:
//
//	backend, err := git.NewBackend(git.BackendPlumbing, git.Options{})
//	if err != nil {
//	    return err
//	}
//	s := git.NewSynchronizer(backend)
//	if err := s.Synchronize(ctx, "./templates/sample", "https://github.com/ffizer/template_sample.git", "1.1.0"); err != nil {
//	    log.Fatalf("sync failed: %v", err)
//	}
//
// Thread Safety:
//
// A Synchronizer may be shared, but concurrent calls for the same
// destination are not serialized. Callers must not synchronize one
// directory from several goroutines at once.
package git
