package inference

// NewWithGenerator lets pipeline tests run the real client over a stubbed model.
var NewWithGenerator = newWithGenerator
