// Package retention decides when a local copy has seeded long enough and
// removes it.
//
// Policy turns a tracker record into a keep/remove decision from seeding age
// and average upload rate. Sweeper applies it to every marked item in the
// completed tree: stale torrents are unregistered (files kept), their hard
// links in the import tree are removed, emptied import directories are pruned
// and the item and its marker are deleted. Untracked marked items are treated
// as orphans and deleted without a tracker call.
package retention
