// Package formula runs calculator formulas: ordered, conditionally gated
// arithmetic lines over a mutable pool of string-valued variables.
//
// # Execution
//
// Run merges the caller's inputs over the model's declared variables and
// executes every formula of the model in declaration order. Lines run in
// ascending Sequence order; lines without a sequence run last, keeping their
// declared order.
//
// For each line:
//
//  1. when both ConditionOperator and ConditionLeft are set, the condition is
//     evaluated with the coefficient comparison operators; a false condition
//     skips the line without writing anything;
//  2. Left and Right are resolved against the pool. COEFFICIENT entries are
//     looked up in their decision table using the current pool, and the
//     result is written back, so later lines see it. A code that names no
//     pool entry is read as a literal value;
//  3. the operands are combined with + - * / (or copied when there is no
//     operator) and numeric results are trimmed;
//  4. a round or roundN post-processor rounds half away from zero;
//  5. the (possibly absent) result is stored under Result.
//
// # Null handling
//
// An operand that is not a number is absent. + and - treat a single absent
// operand as zero; * and / need both operands. Division by zero yields an
// absent result. No line error ever aborts a run.
package formula
