package flexform_test

import (
	"strings"
	"testing"

	"github.com/BartekS5/contentmigrate/internal/flexform"
	"github.com/BartekS5/contentmigrate/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<?xml version="1.0" encoding="utf-8" standalone="yes" ?>
<T3FlexForms>
    <data>
        <sheet index="sDEF">
            <language index="lDEF">
                <field index="header">
                    <value index="vDEF">Welcome &amp; hello</value>
                </field>
                <field index="layout">
                    <value index="vDEF">2</value>
                </field>
                <field index="items">
                    <el>
                        <section index="1">
                            <itemType index="item">
                                <el>
                                    <field index="title">
                                        <value index="vDEF">First</value>
                                    </field>
                                </el>
                            </itemType>
                        </section>
                    </el>
                </field>
                <field index="empty" type="array"></field>
            </language>
        </sheet>
    </data>
</T3FlexForms>`

func TestParse(t *testing.T) {
	c := flexform.NewCodec()
	got, err := c.Parse(sample)
	require.NoError(t, err)

	assert.Equal(t, "Welcome & hello", tree.Get(got, "data/sDEF/lDEF/header/vDEF", "/"))
	assert.Equal(t, "2", tree.Get(got, "data/sDEF/lDEF/layout/vDEF", "/"))
	assert.Equal(t, "First", tree.Get(got, "data/sDEF/lDEF/items/el/1/item/el/title/vDEF", "/"))
	assert.Equal(t, tree.Tree{}, tree.Get(got, "data/sDEF/lDEF/empty", "/"))
}

func TestParseBlank(t *testing.T) {
	got, err := flexform.NewCodec().Parse("  \n")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseMalformed(t *testing.T) {
	_, err := flexform.NewCodec().Parse("<T3FlexForms><data>")
	assert.Error(t, err)
}

func TestSerializeRoundTrip(t *testing.T) {
	c := flexform.NewCodec()
	parsed, err := c.Parse(sample)
	require.NoError(t, err)

	out, err := c.Serialize(parsed, true)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, flexform.Prologue))
	assert.Contains(t, out, `<sheet index="sDEF">`)
	assert.Contains(t, out, `<value index="vDEF">Welcome &amp; hello</value>`)
	assert.Contains(t, out, `<section index="1">`)

	again, err := c.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, parsed, again)
}

func TestSerializeScalars(t *testing.T) {
	c := flexform.NewCodec()
	out, err := c.Serialize(tree.Tree{
		"data": tree.Tree{
			"sDEF": tree.Tree{
				"lDEF": tree.Tree{
					"flag":  tree.Tree{"vDEF": true},
					"count": tree.Tree{"vDEF": 3},
					"none":  tree.Tree{"vDEF": nil},
				},
			},
		},
	}, false)
	require.NoError(t, err)

	assert.False(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `<field index="flag">`)
	assert.Contains(t, out, `<value index="vDEF">1</value>`)
	assert.Contains(t, out, `<value index="vDEF">3</value>`)
	assert.Contains(t, out, `<value index="vDEF"></value>`)
}
