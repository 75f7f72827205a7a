// Package progression holds the pure XP, leveling, streak, quiz-gate and unlock rules.
//
// Functions here mutate the models they are given and never touch storage; callers own
// persistence, locking and transactions.
package progression
