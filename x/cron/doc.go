/*
Package cron implements task queues that store compiled transactions for a
delayed execution.

A task queue is created by an admin and declares a list of authorities. Only
an authority can queue a task. A program acts as an authority through a
derived address it controls, so that it can schedule calls of itself
without holding any key.

Every block, before any transaction is processed, the Ticker executes all
tasks whose trigger is due. A task is executed exactly once. Each task runs
in isolation: its changes are applied only if every instruction succeeds.
The outcome of every task is stored as a TaskResult and the task is removed
from its queue whether it succeeded or not. Queued tasks cannot be
cancelled.
*/
package cron
