package sink_test

import (
	"fmt"

	"github.com/matzehuels/contribnet/pkg/render/sink"
)

func ExampleWrapLabel() {
	for _, line := range sink.WrapLabel("Jean Baptiste Joseph Fourier") {
		fmt.Println(line)
	}
	// Output:
	// Jean Baptiste
	// Joseph Fourier
}
