// Package workflow runs seedkeeper's scheduled passes.
//
// The upload pass links manually added items into the import tree, uploads
// every unmarked import leaf and every loose completed item, then propagates
// import markers back onto the completed items they cover. The cleanup pass
// runs the retention sweep against one tracker snapshot.
//
// Passes never call each other. They coordinate only through filesystem state
// (hard links and marker files), so overlapping runs are safe: the worst case
// is duplicate work that the next run reconciles.
package workflow
