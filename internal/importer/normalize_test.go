package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Maria Silva", TitleCase("MARIA SILVA"))
	assert.Equal(t, "Maria Silva", TitleCase("  maria   silva "))
	assert.Equal(t, "João Santos", TitleCase("joão santos"))
	assert.Equal(t, "Ai Lab", TitleCase("AI Lab"))
	assert.Equal(t, "", TitleCase("   "))
}

func TestEmailSlug(t *testing.T) {
	assert.Equal(t, "joao.santos", emailSlug("joão santos"))
	assert.Equal(t, "maria.silva", emailSlug("MARIA SILVA"))
	assert.Equal(t, "ana.davila", emailSlug("Ana D'Ávila"))
	assert.Equal(t, "unnamed", emailSlug("!!!"))
}

func TestComputeShortName(t *testing.T) {
	assert.Equal(t, "LIA", ComputeShortName("Laboratorio Inteligencia Artificial"))
	assert.Equal(t, "ROBOTICS", ComputeShortName("Robotics"))
	assert.Equal(t, "ABCDEFGHIJKLMNOPQRST", ComputeShortName("abcdefghijklmnopqrstuvwxyz"))
	// lowercase connectives are not part of the acronym
	assert.Equal(t, "NP", ComputeShortName("Nucleo de Pesquisa"))
}
