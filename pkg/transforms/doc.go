/*
Package transforms provides ready-made estimators for chains.

Every estimator maps input columns to output columns through ColumnPairs. An
output named like its input replaces it; Same builds such pairs.

	hasher, _ := transforms.NewTextHasher(transforms.Same("Text"), 12)
	norm, _ := transforms.NewLpNormalizer([]transforms.ColumnPair{
		transforms.Pair("Text", "Features"),
	}, transforms.L2, false)

	chain := estimator.Append[*transforms.TextHashTransformer, *transforms.LpNormalizerTransformer](
		estimator.NewChain[*transforms.TextHashTransformer]().Append(hasher), norm)

LpNormalizer, the global contrast normalizer and TextHasher learn nothing
and fit to themselves. OneHotEncoder learns one vocabulary per column on a
background goroutine.

Transforms never modify their input view. Output views share untouched
columns with the input.
*/
package transforms
