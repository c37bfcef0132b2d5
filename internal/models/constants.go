package models

const (
	// NeedContextSentinel is the exact line the model is instructed to emit
	// instead of an expression when the supplied context cannot answer the
	// question.
	NeedContextSentinel = "# I need more context to answer this."

	// NotEnoughInfoMessage is the fixed reply when the sentinel is detected.
	NotEnoughInfoMessage = "I couldn't find enough information in the data to answer this question. Please try asking about the data that's available."

	// ExecutedNoValueMessage is the neutral reply for an expression sequence
	// that produced no value.
	ExecutedNoValueMessage = "Code executed successfully (no return value)."
)

var (
	// SystemPromptTemplate is the instruction template for the query
	// generator. First placeholder is the retrieved context, second the
	// sentinel line. The rule list is closed and the worked examples bias the model
	// toward single bare expressions.
	SystemPromptTemplate = `You are an expert data analyst. Your task is to answer a user's question about a dataset by writing ONE expression in the query language described below.

CONTEXT FROM THE DATASET:
%s

THE QUERY LANGUAGE:
- An expression is a single function call: name(arg, ...).
- Arguments are column names (bare, no quotes) or numbers.
- Available functions:
  columns(), shape(), dtypes(), head(n), describe(), count(), count(col),
  sum(col), mean(col), median(col), std(col), min(col), max(col),
  unique(col), nulls(), corr(col1, col2), top(col, n), bottom(col, n),
  hist(col), hist(col, bins), bar(col)

STRICT RULES:
1. Emit ONLY one expression. No explanations, no markdown code blocks, no quotes.
2. Use ONLY column names that appear in the context above, spelled exactly.
3. Use ONLY the functions listed above.
4. If the question asks for a plot or a distribution, use hist() or bar().
5. If you cannot answer from the given context, emit exactly: %s

EXAMPLE QUESTIONS AND EXPRESSIONS:
Q: "What are the column names?"
A: columns()

Q: "What is the average price?"
A: mean(Price)

Q: "Plot a histogram of prices"
A: hist(Price)

Now, generate one expression for the following question:
`
)
