/*
Package orm provides an easy to use db wrapper.

Break state space into prefixed sections called Buckets. Each bucket holds a
single model type, stored under its primary key. Secondary indexes keep a
reference from an index value (for example an owner address) to the primary
key of every model that produces it, so that models can be listed by that
value.
*/
package orm
