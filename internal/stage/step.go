package stage

// Step identifies one unit of simulated work performed per product.
type Step string

const (
	// StepAnalyze inspects the product image.
	StepAnalyze Step = "analyze"
	// StepRender produces the annotated main image.
	StepRender Step = "render"
	// StepCopy writes title and selling-point copy.
	StepCopy Step = "copy"
)

// Steps returns the per-product pipeline in execution order.
func Steps() []Step {
	return []Step{StepAnalyze, StepRender, StepCopy}
}

// Progress converts completed unit-steps into a whole percentage and the
// number of fully processed products.
func Progress(doneSteps, products int) (percent, completedItems int) {
	if products <= 0 || doneSteps <= 0 {
		return 0, 0
	}
	total := products * len(Steps())
	if doneSteps > total {
		doneSteps = total
	}
	percent = (doneSteps*100 + total/2) / total
	return percent, doneSteps / len(Steps())
}
